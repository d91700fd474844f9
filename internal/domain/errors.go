package domain

import "errors"

// ErrNotFound lo devuelven los repos (postgres y mongo) cuando no hay fila/documento.
var ErrNotFound = errors.New("not found")
