package service

// PickAuthoritative выбирает платёж, определяющий статус заказа:
// одобренный выигрывает, иначе самый поздний по DateCreated.
func PickAuthoritative(payments []PaymentDetails) (PaymentDetails, bool) {
	if len(payments) == 0 {
		return PaymentDetails{}, false
	}

	best := payments[0]
	for _, p := range payments[1:] {
		switch {
		case p.Status == ProviderApproved && best.Status != ProviderApproved:
			best = p
		case (p.Status == ProviderApproved) == (best.Status == ProviderApproved) && p.DateCreated.After(best.DateCreated):
			best = p
		}
	}
	return best, true
}
