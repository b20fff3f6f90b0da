package domain

import "github.com/shopspring/decimal"

func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.PiecesPerBox != nil {
		v := *patch.PiecesPerBox
		p.PiecesPerBox = &v
	}
	if patch.BoxQuantity != nil {
		v := *patch.BoxQuantity
		p.BoxQuantity = &v
	}
	if patch.BoxPrice != nil {
		v := *patch.BoxPrice
		p.BoxPrice = &v
	}
	if patch.ExpiryDate != nil {
		p.ExpiryDate = *patch.ExpiryDate
	}
	if patch.UpdatedAt != nil {
		p.UpdatedAt = *patch.UpdatedAt
	}
}

func (c *Customer) Apply(patch CustomerPatch) {
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.TotalPurchases != nil {
		c.TotalPurchases = *patch.TotalPurchases
	}
}

func (p *Purchase) Apply(patch PurchasePatch) {
	if patch.CustomerName != nil {
		p.CustomerName = *patch.CustomerName
	}
	if patch.StoreName != nil {
		p.StoreName = *patch.StoreName
	}
	if patch.ProductName != nil {
		p.ProductName = *patch.ProductName
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.TotalAmount != nil {
		p.TotalAmount = *patch.TotalAmount
	}
}

func (o *Order) Apply(patch OrderPatch) {
	if patch.CustomerName != nil {
		o.CustomerName = *patch.CustomerName
	}
	if patch.Items != nil {
		o.Items = append([]OrderItem(nil), patch.Items...)
	}
	if patch.TotalAmount != nil {
		o.TotalAmount = *patch.TotalAmount
	}
	if patch.StoreID != nil {
		o.StoreID = *patch.StoreID
	}
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.Payment != nil {
		payment := *patch.Payment
		payment.Payments = append([]PaymentEntry(nil), patch.Payment.Payments...)
		o.Payment = &payment
	}
	if patch.UpdatedAt != nil {
		o.UpdatedAt = *patch.UpdatedAt
	}
}

// PriceItems fills each line total as quantity*price and returns the order total.
func PriceItems(items []OrderItem) ([]OrderItem, float64) {
	priced := make([]OrderItem, len(items))
	total := decimal.Zero
	for i, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.Total = line.InexactFloat64()
		priced[i] = item
		total = total.Add(line)
	}
	return priced, total.InexactFloat64()
}

// Settle recomputes the payment summary from the recorded entries.
func (o *Order) Settle() {
	if o.Payment == nil {
		o.Payment = &OrderPayment{Payments: []PaymentEntry{}}
	}
	paid := decimal.Zero
	for _, entry := range o.Payment.Payments {
		paid = paid.Add(decimal.NewFromFloat(entry.Amount))
	}
	remaining := decimal.NewFromFloat(o.TotalAmount).Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	o.Payment.TotalPaid = paid.InexactFloat64()
	o.Payment.RemainingAmount = remaining.InexactFloat64()
	switch {
	case paid.IsZero():
		o.Payment.PaymentStatus = PaymentStatusUnpaid
	case remaining.IsZero():
		o.Payment.PaymentStatus = PaymentStatusPaid
	default:
		o.Payment.PaymentStatus = PaymentStatusPartial
	}
}

// SumMoney adds amounts without accumulating binary float error.
func SumMoney(amounts ...float64) float64 {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(decimal.NewFromFloat(amount))
	}
	return total.InexactFloat64()
}
