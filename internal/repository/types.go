package repository

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Category   string
	Status     string
	Search     string
	GroupName  string
	OnlyActive bool
}

// CheckoutRunListFilter 查询结账运行列表的过滤条件
type CheckoutRunListFilter struct {
	Page      int
	PageSize  int
	SessionID string
	Status    string
}
