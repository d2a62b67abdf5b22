package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type Publisher struct {
	mock.Mock
}

func (p *Publisher) Publish(ctx context.Context, event string, tenantID string, payload interface{}) {
	p.Called(ctx, event, tenantID, payload)
}
