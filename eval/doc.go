// Package eval evaluates expr-lang expressions against a scope chain.
//
// Every name visible from the evaluated [scope.Scope] is bound in the
// expression environment to the value a read from that scope returns, with
// nested containers exposed as maps:
//
//	s := scope.NewScope(scope.KV("port", 8080))
//	v, err := eval.Eval(ctx, s, "port + 1") // 8081
//
// Names not bound by the scope fall back to a set of built-ins describing
// the host (target, platform, hostname, user, shell, cwd) together with the
// file, path and mung namespaces and the env() function for process
// environment variables.
//
// Hyphenated names such as "log-level" are recognized where the expression
// parser would otherwise read a subtraction, provided the combined name is
// bound.
//
// Compiled programs are cached by source and environment shape; see
// [ClearCache].
package eval
