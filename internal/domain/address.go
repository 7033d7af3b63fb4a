package domain

import "github.com/go-playground/validator/v10"

// SupportedCountry — магазин отправляет заказы только внутри одной страны.
const SupportedCountry = "US"

// ShippingAddress — адрес доставки из профиля покупателя.
// Профиль хранит ровно один адрес; редактирование перезаписывает его целиком.
type ShippingAddress struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Address1  string `json:"address1" validate:"required"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city" validate:"required"`
	// State — название штата или его двухбуквенный код.
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
}

var addressValidator = validator.New()

// Validate проверяет структурную корректность адреса перед чекаутом.
func (a *ShippingAddress) Validate() error {
	if err := addressValidator.Struct(a); err != nil {
		return err
	}
	return nil
}

// UserProfile — локальный профиль покупателя.
type UserProfile struct {
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
}
