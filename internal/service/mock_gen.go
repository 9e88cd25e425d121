// internal/service/mock_gen.go
package service

//go:generate mockgen -typed -source=./service.go -destination=../mocks/mock_service.go -package=mocks UserDirectory,Notifier,Renderer
