package models

// ContactMethod describes how the controller reaches a registered server.
type ContactMethod struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Name  string `json:"name"`
}

// DefaultContactMethodID is the method new activation keys start with.
const DefaultContactMethodID int64 = 0

var contactMethods = []ContactMethod{
	{ID: 0, Label: "default", Name: "Default"},
	{ID: 1, Label: "ssh-push", Name: "Push via SSH"},
	{ID: 2, Label: "ssh-push-tunnel", Name: "Push via SSH tunnel"},
}

// FindContactMethodByID returns the contact method with the given id,
// or nil when it is unknown.
func FindContactMethodByID(id int64) *ContactMethod {
	for i := range contactMethods {
		if contactMethods[i].ID == id {
			cm := contactMethods[i]
			return &cm
		}
	}
	return nil
}
