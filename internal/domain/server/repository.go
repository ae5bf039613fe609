package server

import "context"

type Repository interface {
	Create(ctx context.Context, s *Server) error
	Update(ctx context.Context, s *Server) error
	GetByID(ctx context.Context, id uint) (*Server, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Server, error)
}

type LocationRepository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, id uint) (*Location, error)
}
