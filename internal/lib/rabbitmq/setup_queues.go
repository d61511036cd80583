package rabbitmq

// ReminderExchange — exchange для сообщений о задолженности участников.
const ReminderExchange = "reminders"

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetReminderQueues возвращает очереди напоминаний о задолженности.
func GetReminderQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "reminder.overdue", RoutingKey: "overdue"},
	}
}
