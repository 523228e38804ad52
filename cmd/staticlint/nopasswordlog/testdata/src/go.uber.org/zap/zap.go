package zap

type Field struct{}

func String(key, value string) Field { return Field{} }

type Logger struct{}

func (l *Logger) Info(msg string, fields ...Field) {}

func (l *Logger) Sugar() *SugaredLogger { return &SugaredLogger{} }

type SugaredLogger struct{}

func (s *SugaredLogger) Infoln(args ...interface{}) {}

func (s *SugaredLogger) Debugln(args ...interface{}) {}
