package shared

// Order permissions.
const (
	PermViewOrders       = "ViewOrders"
	PermViewOrderHistory = "ViewOrderHistory"
	PermEditOrders       = "EditOrders"
	PermShipOrders       = "ShipOrders"
)

// OrderScopes lists all permissions related to orders.
func OrderScopes() []string {
	return []string{
		PermViewOrders,
		PermViewOrderHistory,
		PermEditOrders,
		PermShipOrders,
	}
}
