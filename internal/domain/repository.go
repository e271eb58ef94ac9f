package domain

import "context"

// ProductStore описывает требования к хранилищу товаров.
type ProductStore interface {
	// Count возвращает количество товаров, включая скрытые.
	Count(ctx context.Context) (int, error)
	// InsertMany сохраняет пачку товаров (используется при начальном заполнении).
	InsertMany(ctx context.Context, products []Product) error
	// List возвращает товары в порядке добавления; includeHidden=false оставляет только видимые.
	List(ctx context.Context, includeHidden bool) ([]Product, error)
	// Get возвращает товар по ID, ErrInvalidID или ErrProductNotFound.
	Get(ctx context.Context, id string) (Product, error)
	// FindBySlug возвращает самый ранний товар с таким slug без учёта видимости.
	FindBySlug(ctx context.Context, slug string) (Product, error)
	// Insert сохраняет новый товар и возвращает его с назначенным ID.
	Insert(ctx context.Context, product Product) (Product, error)
	// ApplyPatch атомарно применяет патч к текущей записи и возвращает её
	// состояние до и после. Поля вне патча, включая остаток, не перезаписываются.
	ApplyPatch(ctx context.Context, id string, patch ProductPatch) (before, after Product, err error)
	// Delete удаляет товар и возвращает удалённую запись.
	Delete(ctx context.Context, id string) (Product, error)
	// DecreaseStock списывает остатки пачкой, не опуская их ниже нуля.
	// Некорректные и неизвестные ID пропускаются.
	DecreaseStock(ctx context.Context, items []StockDecrement) error
}

// OrderStore описывает требования к хранилищу заказов.
type OrderStore interface {
	// Insert сохраняет заказ и возвращает его с назначенным ID.
	Insert(ctx context.Context, order Order) (Order, error)
	// List возвращает заказы, новые первыми.
	List(ctx context.Context) ([]Order, error)
	// Get возвращает заказ по ID.
	Get(ctx context.Context, id string) (Order, error)
	// UpdateStatus выставляет статус. Ошибки: ErrInvalidID, ErrOrderNotFound, ErrOrderStatusUnchanged.
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
}

// UserStore описывает требования к хранилищу администраторов.
type UserStore interface {
	// FindByEmail ищет пользователя по точному совпадению email.
	FindByEmail(ctx context.Context, email string) (User, error)
	// Insert сохраняет пользователя или возвращает ErrUserExists.
	Insert(ctx context.Context, user User) (User, error)
}
