// internal/storage/mock_gen.go
package storage

//go:generate mockgen -typed -source=./storage.go -destination=../mocks/mock_storage.go -package=mocks FileStore
