package carrier

// sendleMoney is an amount/currency pair
type sendleMoney struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// sendleQuote is one product quote from GET /api/products
type sendleQuote struct {
	Quote struct {
		Gross sendleMoney `json:"gross"`
	} `json:"quote"`
	ETA struct {
		DaysRange []int `json:"days_range"`
	} `json:"eta"`
	Product struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"product"`
}

// sendleContact is the person half of an order endpoint
type sendleContact struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// sendleAddress is the address half of an order endpoint
type sendleAddress struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	Suburb       string `json:"suburb"`
	StateName    string `json:"state_name,omitempty"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
}

// sendleEndpoint is a sender or receiver on an order
type sendleEndpoint struct {
	Contact sendleContact `json:"contact"`
	Address sendleAddress `json:"address"`
}

// sendleDimension is a value/units measurement pair
type sendleDimension struct {
	Value string `json:"value"`
	Units string `json:"units"`
}

// sendleOrderRequest is the payload for POST /api/orders
type sendleOrderRequest struct {
	ProductCode       string          `json:"product_code,omitempty"`
	CustomerReference string          `json:"customer_reference"`
	Weight            sendleDimension `json:"weight"`
	Dimensions        *sendleVolume   `json:"dimensions,omitempty"`
	Sender            sendleEndpoint  `json:"sender"`
	Receiver          sendleEndpoint  `json:"receiver"`
}

// sendleVolume is the parcel dimensions block
type sendleVolume struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
	Units  string `json:"units"`
}

// sendleOrderResponse is the order creation response
type sendleOrderResponse struct {
	OrderID         string `json:"order_id"`
	State           string `json:"state"`
	SendleReference string `json:"sendle_reference"`
	TrackingURL     string `json:"tracking_url"`
	Labels          []struct {
		Format string `json:"format"`
		Size   string `json:"size"`
		URL    string `json:"url"`
	} `json:"labels"`
	Price       sendleMoney `json:"price"`
	ProductCode string      `json:"product_code"`
}

// sendleCancelResponse is the order cancellation response
type sendleCancelResponse struct {
	OrderID             string `json:"order_id"`
	State               string `json:"state"`
	CancellationMessage string `json:"cancellation_message"`
}

// sendleErrorResponse is the error body Sendle returns on 4xx
type sendleErrorResponse struct {
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
