package billing

// PartnerAddress is the address and GST registration of a business partner.
// Address fields come from the partner's first address; GSTIN from its IN3 tax number.
type PartnerAddress struct {
	BusinessPartner string `json:"BusinessPartner"`
	FullName        string `json:"FullName,omitempty"`
	StreetName      string `json:"StreetName,omitempty"`
	HouseNumber     string `json:"HouseNumber,omitempty"`
	CityName        string `json:"CityName,omitempty"`
	PostalCode      string `json:"PostalCode,omitempty"`
	Region          string `json:"Region,omitempty"`
	StateName       string `json:"StateName,omitempty"`
	StateCode       string `json:"StateCode,omitempty"`
	Country         string `json:"Country,omitempty"`
	GSTIN           string `json:"GSTIN,omitempty"`
}

// Empty reports whether neither address nor tax data is present.
func (p *PartnerAddress) Empty() bool {
	if p == nil {
		return true
	}
	return p.FullName == "" && p.StreetName == "" && p.HouseNumber == "" && p.CityName == "" &&
		p.PostalCode == "" && p.Region == "" && p.Country == "" && p.GSTIN == ""
}
