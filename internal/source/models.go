package source

// Address is one entry in a customer's address list. The "service" typed
// address is preferred when mapping to the CRM; see the transform package.
type Address struct {
	Type        string `json:"type"`
	Street      string `json:"street"`
	StreetLine2 string `json:"street_line_2"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
}

// Customer is a customer record owned by the field-service system.
// Read-only here; timestamps stay as wire strings and are parsed where needed.
type Customer struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	MobileNumber string    `json:"mobile_number"`
	HomeNumber   string    `json:"home_number"`
	Email        string    `json:"email"`
	Addresses    []Address `json:"addresses"`
	Tags         []string  `json:"tags"`
	UpdatedAt    string    `json:"updated_at"`
}

// Job is a service job attached to a customer.
type Job struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at"`
}

// CustomerPage is one page of a paginated customer listing.
type CustomerPage struct {
	Records    []Customer `json:"records"`
	TotalPages int        `json:"total_pages"`
}
