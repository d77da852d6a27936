package crm

// ChannelAPI marks contacts created through this sync. Any other non-blank
// channel value means the contact was touched by a human downstream and must
// never be overwritten automatically.
const ChannelAPI = "API"

// Contact is a contact record owned by the retention CRM.
type Contact struct {
	ID        string   `json:"_id"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Email     string   `json:"email,omitempty"`
	City      string   `json:"city,omitempty"`
	Address   string   `json:"address,omitempty"`
	State     string   `json:"state,omitempty"`
	Zip       string   `json:"zip,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Channel   string   `json:"channel,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// ContactPayload is the write shape for create/update calls. Every field is
// omitted when blank: the CRM rejects or mishandles empty-string fields, so
// omission is the contract, not a nicety.
type ContactPayload struct {
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Email     string   `json:"email,omitempty"`
	City      string   `json:"city,omitempty"`
	Address   string   `json:"address,omitempty"`
	State     string   `json:"state,omitempty"`
	Zip       string   `json:"zip,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Channel   string   `json:"channel,omitempty"`
}

// ContactPage is one page of a paginated contact listing.
type ContactPage struct {
	Records    []Contact `json:"records"`
	TotalCount int       `json:"total_count"`
}
