package repositories

// RepositoryProvider bundles the repository facades handed to the service
// layer at startup.
type RepositoryProvider struct {
	TransactionRepo TransactionRepositoryFacade
	CashFlowRepo    CashFlowRepositoryFacade
	UserRepo        UserRepositoryFacade
}
