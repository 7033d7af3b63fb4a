package domain

// OrderRecordStore описывает требования к хранилищу записей о заказах.
type OrderRecordStore interface {
	// Put сохраняет запись. Идемпотентен по подписи: повторный вызов
	// с тем же ключом не создаёт дубликата и не меняет существующую запись.
	Put(record OrderRecord) error
	// Get возвращает запись по подписи или ErrOrderNotFound.
	Get(signature string) (OrderRecord, error)
	// List возвращает записи от новых к старым с опциональным лимитом (если >0).
	List(limit int) ([]OrderRecord, error)
}

// CartRepository — корзина покупателя. Чекаут читает снимок позиций
// и очищает корзину целиком ровно один раз при записи заказа.
type CartRepository interface {
	Items() ([]CartItem, error)
	Clear() error
}

// TimelineRepository хранит переходы этапов по попыткам чекаута.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(attemptID string) ([]TimelineEvent, error)
}
