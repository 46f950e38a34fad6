package interp

import (
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/values"
	"github.com/sirupsen/logrus"
)

// LogVisitor writes internal calls, returns and exceptions to a logrus logger.
// Statements and expressions are logged at trace level only.
type LogVisitor struct {
	Logger *logrus.Logger
}

func NewLogVisitor(logger *logrus.Logger) *LogVisitor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogVisitor{Logger: logger}
}

func (v *LogVisitor) entry(s *State) *logrus.Entry {
	return v.Logger.WithFields(logrus.Fields{
		"exec":     s.ID.String(),
		"contract": s.Contract.Name,
		"depth":    len(s.Internal),
	})
}

func (v *LogVisitor) Call(s *State, fn *ast.FunctionDefinition, args []values.Value) {
	v.entry(s).WithField("args", args).Debugf("call %s", fn.Name)
}

func (v *LogVisitor) Return(s *State, fn *ast.FunctionDefinition, rets []values.Value) {
	v.entry(s).WithField("returns", rets).Debugf("return %s", fn.Name)
}

func (v *LogVisitor) Exception(s *State, err error) {
	if IsInternal(err) {
		v.entry(s).WithError(err).Error("execution aborted")
		return
	}
	v.entry(s).WithError(err).Debug("exception")
}

func (v *LogVisitor) Exec(s *State, stmt ast.Statement) {
	if v.Logger.IsLevelEnabled(logrus.TraceLevel) {
		v.entry(s).Tracef("exec %T", stmt)
	}
}

func (v *LogVisitor) Eval(s *State, expr ast.Expression, val values.Value) {
	if v.Logger.IsLevelEnabled(logrus.TraceLevel) {
		v.entry(s).Tracef("eval %T = %v", expr, val)
	}
}
