package model

import "time"

// 注文作成時点の商品スナップショット。作成後は変更しない
type OrderItem struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID string `gorm:"type:varchar(36);not null;index" json:"order_id"`

	// 商品が削除されても明細は残るのでnullable
	ProductID *string `gorm:"type:varchar(36);index" json:"product_id"`

	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	LineTotal           int64     `gorm:"not null" json:"line_total"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (it OrderItem) HasProduct() bool {
	return it.ProductID != nil && *it.ProductID != ""
}
