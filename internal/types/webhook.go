package types

// Domain event names emitted after the primary transaction commits. The
// notification dispatcher consuming these is an external collaborator; this
// core only publishes.
const (
	WebhookEventInvoiceCreated        = "invoice.created"
	WebhookEventPaymentSuccess        = "payment.success"
	WebhookEventPaymentFailed         = "payment.failed"
	WebhookEventRenewalReminder       = "subscription.renewal_reminder"
	WebhookEventTrialEnding           = "subscription.trial_ending"
	WebhookEventSubscriptionCreated   = "subscription.created"
	WebhookEventSubscriptionRenewed   = "subscription.renewed"
	WebhookEventSubscriptionCancelled = "subscription.cancelled"
)
