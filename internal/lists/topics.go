package lists

const (
	TopicListEvents   = "list-updates"
	TopicPayments     = "payment-requests"
	TopicTransactions = "payment-transactions"
)
