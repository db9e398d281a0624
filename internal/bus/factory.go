package bus

import (
	"fmt"

	"github.com/skillmatch/skill-match/internal/config"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
)

// NewBus creates an event bus from configuration. Supported types are
// "memory" and "kafka".
func NewBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryBus(log), nil
	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, fmt.Errorf("kafka bus requires brokers")
		}
		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: "skill-match",
		}, log)
	default:
		return nil, fmt.Errorf("unknown bus type %q", cfg.Type)
	}
}
