package adapter

type Listener interface {
	Tag() string
	Type() string
	Starter
	Closer
}
