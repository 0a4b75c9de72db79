package models

// LocationSelection is the persisted city choice. StateName is only
// meaningful alongside a City and is stored as null when unknown.
type LocationSelection struct {
	City      string  `json:"city"`
	StateName *string `json:"stateName"`
}

type City struct {
	City  string `json:"city"`
	State string `json:"state"`
}
