package models

const (
	StatusPending   = "pending"
	StatusContacted = "contacted"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Statuses lists every valid status in dashboard order.
var Statuses = []string{StatusPending, StatusContacted, StatusCompleted, StatusCancelled}

// IsValidStatus reports whether s is one of the four booking statuses.
func IsValidStatus(s string) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

const (
	// DefaultStoragePath путь к файлу заявок по умолчанию
	DefaultStoragePath = "data/bookings.json"

	// DefaultTokenTTL время жизни токена администратора в секундах
	DefaultTokenTTL = 24 * 60 * 60

	// DefaultSubmitLimit количество заявок с одного адреса в окне
	DefaultSubmitLimit = 5

	// DefaultSubmitWindow окно ограничения отправки формы в секундах
	DefaultSubmitWindow = 10 * 60

	// WorkerQueueSize размер очереди уведомлений
	WorkerQueueSize = 256
)
