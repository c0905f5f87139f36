package billing

// SalesOrder is a sales order referenced by at least one billing item.
type SalesOrder struct {
	SalesOrder                string `json:"SalesOrder"`
	PurchaseOrderByCustomer   string `json:"PurchaseOrderByCustomer"`
	CustomerPurchaseOrderDate string `json:"CustomerPurchaseOrderDate"`

	DeliveryItems []DeliveryItem `json:"DeliveryItems"`
}

// DeliveryItem is one outbound delivery line of a sales order, enriched with its plant
// address and delivery header.
type DeliveryItem struct {
	DeliveryDocument        string `json:"DeliveryDocument"`
	DeliveryDocumentItem    string `json:"DeliveryDocumentItem"`
	ReferenceSDDocument     string `json:"ReferenceSDDocument"`
	ReferenceSDDocumentItem string `json:"ReferenceSDDocumentItem"`
	Plant                   string `json:"Plant"`
	Material                string `json:"Material"`
	Product                 string `json:"Product,omitempty"`
	ProductID               string `json:"ProductID,omitempty"`

	PlantAddress   PlantAddress    `json:"PlantAddress"`
	DeliveryHeader *DeliveryHeader `json:"DeliveryHeader"`
}

// HSNStatus records how a delivery item's HSN code was obtained.
type HSNStatus string

const (
	// HSNResolved means a candidate product carried a tax-control code.
	HSNResolved HSNStatus = "resolved"
	// HSNFallback means a product-plant record was found but none carried a code.
	HSNFallback HSNStatus = "fallback"
	// HSNUnresolved means no candidate product had a product-plant record.
	HSNUnresolved HSNStatus = "unresolved"
)

// PlantAddress is the plant enrichment attached to a delivery item.
// A failed or empty plant lookup leaves it zero-valued, HSN fields included.
type PlantAddress struct {
	Plant         string `json:"Plant,omitempty"`
	PlantName     string `json:"PlantName,omitempty"`
	StreetName    string `json:"StreetName,omitempty"`
	HouseNumber   string `json:"HouseNumber,omitempty"`
	CityName      string `json:"CityName,omitempty"`
	PostalCode    string `json:"PostalCode,omitempty"`
	Region        string `json:"Region,omitempty"`
	StateName     string `json:"StateName,omitempty"`
	StateCode     string `json:"StateCode,omitempty"`
	Country       string `json:"Country,omitempty"`
	BusinessPlace string `json:"BusinessPlace,omitempty"`
	GSTIN         string `json:"GSTIN,omitempty"`

	// HSN is the tax-control code of the first candidate product that has one.
	HSN            string    `json:"HSN,omitempty"`
	MatchedProduct string    `json:"MatchedProduct,omitempty"`
	HSNStatus      HSNStatus `json:"HSNStatus,omitempty"`
}

// DeliveryHeader carries the ship-to and sold-to parties of an outbound delivery.
// Partner addresses are shared pointers: every header naming a partner sees the same value.
type DeliveryHeader struct {
	DeliveryDocument string `json:"DeliveryDocument"`
	ShipToParty      string `json:"ShipToParty"`
	SoldToParty      string `json:"SoldToParty"`

	BuyerAddress     *PartnerAddress `json:"BuyerAddress"`
	ConsigneeAddress *PartnerAddress `json:"ConsigneeAddress"`
}

// PartnerIDs returns the non-empty sold-to and ship-to ids of the header.
func (h *DeliveryHeader) PartnerIDs() []string {
	if h == nil {
		return nil
	}
	ids := make([]string, 0, 2)
	if h.SoldToParty != "" {
		ids = append(ids, h.SoldToParty)
	}
	if h.ShipToParty != "" {
		ids = append(ids, h.ShipToParty)
	}
	return ids
}

// PrimaryParties returns the buyer and consignee of the first delivery item of the first
// sales order. Either may be nil.
func PrimaryParties(orders []SalesOrder) (buyer, consignee *PartnerAddress) {
	if len(orders) == 0 || len(orders[0].DeliveryItems) == 0 {
		return nil, nil
	}
	header := orders[0].DeliveryItems[0].DeliveryHeader
	if header == nil {
		return nil, nil
	}
	return header.BuyerAddress, header.ConsigneeAddress
}
