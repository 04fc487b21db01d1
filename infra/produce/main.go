package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	RewriteService *RewriteService
}

var produceInstance *Produce

func InitProduce(channel *amqp.Channel) *Produce {
	if produceInstance != nil {
		return produceInstance
	}

	rewriteService := InitRewriteService(channel)
	if rewriteService == nil {
		panic("Failed to initialize Rewrite service")
	}

	produceInstance = &Produce{
		RewriteService: rewriteService,
	}

	return produceInstance
}

func GetProduce() *Produce {
	if produceInstance == nil {
		panic("Produce not initialized. Call InitProduce() first.")
	}
	return produceInstance
}
