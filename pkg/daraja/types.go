package daraja

import "encoding/json"

// tokenResponse is the OAuth credential grant reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// PushRequest carries the values needed to trigger an STK push prompt on the
// payer's handset.
type PushRequest struct {
	Amount           string
	PhoneNumber      string
	AccountReference string
	Description      string
}

// stkPushPayload is the wire request for the STK push endpoint.
type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// PushResponse is the synchronous gateway acknowledgement of a push request.
type PushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Accepted reports whether the gateway queued the push for processing.
func (r PushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

// queryPayload is the wire request for the transaction status endpoint.
type queryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// QueryResponse is the reply from the transaction status endpoint. ResultCode
// here uses a different code space than the asynchronous callback.
type QueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// CallbackEnvelope is the asynchronous payment result delivered to the
// registered callback URL.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

// StkCallback carries the outcome of a single push attempt.
type StkCallback struct {
	MerchantRequestID string           `json:"MerchantRequestID"`
	CheckoutRequestID string           `json:"CheckoutRequestID"`
	ResultCode        json.Number      `json:"ResultCode"`
	ResultDesc        string           `json:"ResultDesc"`
	CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
}

// CallbackMetadata is only present on successful payments.
type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

// CallbackItem is a loosely typed name/value pair in the callback metadata.
type CallbackItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// Succeeded reports whether the payer completed the payment.
func (c StkCallback) Succeeded() bool {
	return c.ResultCode.String() == "0"
}

// MetadataString extracts a string-typed metadata item by name.
func (c StkCallback) MetadataString(name string) string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != name {
			continue
		}
		var s string
		if err := json.Unmarshal(item.Value, &s); err == nil {
			return s
		}
		// numeric values arrive unquoted
		var n json.Number
		if err := json.Unmarshal(item.Value, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

// ReceiptNumber returns the provider receipt identifier from the metadata.
func (c StkCallback) ReceiptNumber() string {
	return c.MetadataString("MpesaReceiptNumber")
}
