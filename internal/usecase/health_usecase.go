package usecase

import "context"

// ServerRunningMessage is the liveness payload of GET /.
const ServerRunningMessage = "Server running"

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct{}

func NewHealthUsecase() HealthUsecase {
	return &healthUsecase{}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	return map[string]string{
		"message": ServerRunningMessage,
	}
}
