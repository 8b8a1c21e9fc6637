package services

import (
	"context"

	"famfin/internal/core"
	"famfin/internal/finance"
)

// CardView is a credit card with its derived debt figures.
type CardView struct {
	core.CreditCard
	TotalDebt       core.Money `json:"totalDebt"`
	AvailableCredit core.Money `json:"availableCredit"`
}

// PurchaseView is an installment purchase with its derived state.
type PurchaseView struct {
	core.CardPurchase
	finance.InstallmentStatus
}

func purchaseView(p core.CardPurchase) (PurchaseView, error) {
	st, err := p.InstallmentPlan().Status()
	if err != nil {
		return PurchaseView{}, err
	}
	st.InstallmentAmount = finance.RoundCents(st.InstallmentAmount)
	st.RemainingAmount = finance.RoundCents(st.RemainingAmount)
	return PurchaseView{CardPurchase: p, InstallmentStatus: st}, nil
}

// activePlans returns the installment plans of purchases still being paid.
func activePlans(purchases []core.CardPurchase) []finance.Installments {
	out := make([]finance.Installments, 0, len(purchases))
	for _, p := range purchases {
		if p.Status == core.StatusPaid || p.PaidInstallments >= p.Installments {
			continue
		}
		out = append(out, p.InstallmentPlan())
	}
	return out
}

func cardView(c core.CreditCard, purchases []core.CardPurchase) (CardView, error) {
	debt, err := finance.CardTotalDebt(activePlans(purchases))
	if err != nil {
		return CardView{}, err
	}
	total, err := core.MoneyFromFloat(debt)
	if err != nil {
		return CardView{}, err
	}
	return CardView{
		CreditCard:      c,
		TotalDebt:       total,
		AvailableCredit: c.AvailableCredit(),
	}, nil
}

func (s *Service) CreateCard(ctx context.Context, userID int64, c core.CreditCard) (CardView, error) {
	c.UserID = userID
	c.CurrentBalance = core.Money{}
	if err := c.Validate(); err != nil {
		return CardView{}, err
	}
	c, err := s.store.CreateCard(ctx, c)
	if err != nil {
		return CardView{}, err
	}
	s.invalidate(ctx, userID)
	return cardView(c, nil)
}

// ListCards returns every card of the user with its outstanding installments.
func (s *Service) ListCards(ctx context.Context, userID int64) ([]CardView, error) {
	cards, err := s.store.ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	purchases, err := s.store.ListPurchases(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	byCard := make(map[int64][]core.CardPurchase, len(cards))
	for _, p := range purchases {
		byCard[p.CardID] = append(byCard[p.CardID], p)
	}

	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		v, err := cardView(c, byCard[c.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) GetCard(ctx context.Context, userID, id int64) (CardView, error) {
	c, err := s.store.GetCard(ctx, userID, id)
	if err != nil {
		return CardView{}, err
	}
	purchases, err := s.store.ListPurchases(ctx, userID, id)
	if err != nil {
		return CardView{}, err
	}
	return cardView(c, purchases)
}

func (s *Service) DeleteCard(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteCard(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// CreatePurchase records an installment purchase on cardID. Installments
// already marked paid are not charged to the card.
func (s *Service) CreatePurchase(ctx context.Context, userID, cardID int64, p core.CardPurchase) (PurchaseView, error) {
	p.ID = 0
	p.CardID = cardID
	if p.PurchaseDate.IsEmpty() {
		p.PurchaseDate = s.today()
	}
	if err := p.Validate(); err != nil {
		return PurchaseView{}, err
	}
	p, err := s.store.CreatePurchase(ctx, userID, p)
	if err != nil {
		return PurchaseView{}, err
	}
	s.invalidate(ctx, userID)
	return purchaseView(p)
}

func (s *Service) ListPurchases(ctx context.Context, userID, cardID int64) ([]PurchaseView, error) {
	if _, err := s.store.GetCard(ctx, userID, cardID); err != nil {
		return nil, err
	}
	purchases, err := s.store.ListPurchases(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	out := make([]PurchaseView, 0, len(purchases))
	for _, p := range purchases {
		v, err := purchaseView(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// PayInstallment pays the next installment of a purchase.
func (s *Service) PayInstallment(ctx context.Context, userID, cardID, purchaseID int64) (PurchaseView, error) {
	p, err := s.store.PayInstallment(ctx, userID, cardID, purchaseID)
	if err != nil {
		return PurchaseView{}, err
	}
	s.invalidate(ctx, userID)
	return purchaseView(p)
}
