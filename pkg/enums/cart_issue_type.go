package enums

// CartIssueType classifies a cart line that can no longer be purchased.
type CartIssueType string

const (
	CartIssueOutOfStock         CartIssueType = "out_of_stock"
	CartIssueInsufficientStock  CartIssueType = "insufficient_stock"
	CartIssueProductUnavailable CartIssueType = "product_unavailable"
)

// String implements fmt.Stringer.
func (c CartIssueType) String() string {
	return string(c)
}
