package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

type normalizedAction struct {
	Type      domain.ActionType    `json:"type"`
	ProductID string               `json:"productId,omitempty"`
	OrderID   string               `json:"orderId,omitempty"`
	Product   *normalizedProduct   `json:"product,omitempty"`
	Patch     *domain.ProductPatch `json:"patch,omitempty"`
	Sale      *normalizedSale      `json:"sale,omitempty"`
}

type normalizedProduct struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
	Category string `json:"category"`
	SKU      string `json:"sku"`
	ImageURL string `json:"imageUrl"`
}

type normalizedSale struct {
	ID            string            `json:"id"`
	Status        domain.SaleStatus `json:"status"`
	Total         string            `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
	UserID        string            `json:"userId"`
	CustomerName  string            `json:"customerName"`
	Items         []normalizedLine  `json:"items"`
}

type normalizedLine struct {
	ProductID string `json:"productId"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// FingerprintAction builds a deterministic hash of an action payload (excluding its id and timestamp).
func FingerprintAction(action domain.Action) (string, error) {
	payload, err := json.Marshal(normalizeAction(action))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeAction(action domain.Action) normalizedAction {
	normalized := normalizedAction{
		Type:      action.Type,
		ProductID: action.ProductID,
		OrderID:   action.OrderID,
	}
	if action.Product != nil {
		p := action.Product
		normalized.Product = &normalizedProduct{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price.String(),
			Stock:    p.Stock,
			Category: p.Category,
			SKU:      p.SKU,
			ImageURL: p.ImageURL,
		}
	}
	if action.Patch != nil {
		patch := action.Patch.Normalized()
		normalized.Patch = &patch
	}
	if action.Sale != nil {
		s := action.Sale
		items := make([]normalizedLine, 0, len(s.Items))
		for _, item := range s.Items {
			items = append(items, normalizedLine{ProductID: item.ProductID, Price: item.Price.String(), Quantity: item.Quantity})
		}
		normalized.Sale = &normalizedSale{
			ID:            s.ID,
			Status:        s.Status,
			Total:         s.Total.String(),
			PaymentMethod: s.PaymentMethod,
			UserID:        s.UserID,
			CustomerName:  s.CustomerName,
			Items:         items,
		}
	}
	return normalized
}
