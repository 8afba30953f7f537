package services

// ServiceContainer bundles the service facades handed to route registration.
type ServiceContainer struct {
	User        UserSvcFacade
	CashFlow    CashFlowSvcFacade
	Transaction TransactionSvcFacade
	Import      ImportSvcFacade
}
