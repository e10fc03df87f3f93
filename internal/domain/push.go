package domain

// PushSubscription mirrors the device endpoint payload expected by the
// notifications API.
type PushSubscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubmitReceipt is the server acknowledgement for a story submission.
type SubmitReceipt struct {
	Error   bool
	Message string
}
