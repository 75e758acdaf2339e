package venue

// Logger - Контракт логирования, в cmd передается *zap.SugaredLogger
type Logger interface {
	Infof(template string, args ...any)
	Errorf(template string, args ...any)
	Fatalf(template string, args ...any)
}
