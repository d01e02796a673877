package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// formatCell renders a cell for text formats; amounts keep two decimals
func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return v.StringFixed(2)
	case *decimal.Decimal:
		if v == nil {
			return ""
		}
		return v.StringFixed(2)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}
