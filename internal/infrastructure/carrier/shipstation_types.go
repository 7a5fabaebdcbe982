package carrier

// shipStationAddress is the address shape shared by rate and label
// requests
type shipStationAddress struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// shipStationWeight is weight in the unit named by Units
type shipStationWeight struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// shipStationDimensions are parcel dimensions in the unit named by Units
type shipStationDimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

// shipStationRateRequest is the payload for POST /shipments/getrates
type shipStationRateRequest struct {
	FromPostalCode string                 `json:"fromPostalCode"`
	FromCity       string                 `json:"fromCity,omitempty"`
	FromState      string                 `json:"fromState,omitempty"`
	FromCountry    string                 `json:"fromCountry"`
	ToPostalCode   string                 `json:"toPostalCode"`
	ToCity         string                 `json:"toCity,omitempty"`
	ToState        string                 `json:"toState,omitempty"`
	ToCountry      string                 `json:"toCountry"`
	Weight         shipStationWeight      `json:"weight"`
	Dimensions     *shipStationDimensions `json:"dimensions,omitempty"`
}

// shipStationRate is one quoted service from the rate response
type shipStationRate struct {
	CarrierCode  string  `json:"carrierCode"`
	ServiceName  string  `json:"serviceName"`
	ServiceCode  string  `json:"serviceCode"`
	ShipmentCost float64 `json:"shipmentCost"`
	OtherCost    float64 `json:"otherCost"`
	DeliveryDays int     `json:"deliveryDays"`
}

// shipStationLabelRequest is the payload for POST /shipments/createlabel
type shipStationLabelRequest struct {
	CarrierCode string                 `json:"carrierCode"`
	ServiceCode string                 `json:"serviceCode"`
	ShipDate    string                 `json:"shipDate"`
	Weight      shipStationWeight      `json:"weight"`
	Dimensions  *shipStationDimensions `json:"dimensions,omitempty"`
	ShipFrom    shipStationAddress     `json:"shipFrom"`
	ShipTo      shipStationAddress     `json:"shipTo"`
	TestLabel   bool                   `json:"testLabel"`
}

// shipStationLabelResponse is the createlabel response
type shipStationLabelResponse struct {
	ShipmentID     int64   `json:"shipmentId"`
	ShipmentCost   float64 `json:"shipmentCost"`
	TrackingNumber string  `json:"trackingNumber"`
	LabelData      string  `json:"labelData"`
	LabelURL       string  `json:"labelUrl"`
	CarrierCode    string  `json:"carrierCode"`
	ServiceCode    string  `json:"serviceCode"`
	Voided         bool    `json:"voided"`
}

// shipStationVoidRequest is the payload for POST /shipments/voidlabel
type shipStationVoidRequest struct {
	ShipmentID int64 `json:"shipmentId"`
}

// shipStationVoidResponse is the voidlabel response
type shipStationVoidResponse struct {
	Approved bool   `json:"approved"`
	Message  string `json:"message"`
}

// shipStationErrorResponse is the error body ShipStation returns on 4xx
type shipStationErrorResponse struct {
	Message       string `json:"Message"`
	ExceptionMsg  string `json:"ExceptionMessage"`
	ModelStateMsg string `json:"ModelState,omitempty"`
}
