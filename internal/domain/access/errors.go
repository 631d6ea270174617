package access

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUnknownFeature  = errors.New("unknown feature")
	ErrUnknownLevel    = errors.New("unknown permission level")
	ErrChangeNotFound  = errors.New("pending permission change not found")
	ErrChangeForbidden = errors.New("pending permission change belongs to another actor")
	ErrSelfElevation   = errors.New("cannot grant new permissions to yourself")
)
