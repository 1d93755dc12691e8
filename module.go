package stache

import (
	"io/ioutil"
	"path/filepath"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
)

// moduleHead and moduleTail wrap a script in a CommonJS module scope.
const (
	moduleHead = "(function(exports, module, __filename, __dirname) {\n"
	moduleTail = "\n})"
)

// loadModule evaluates the JavaScript file at path as a CommonJS module and
// returns the exported value of module.exports.
func loadModule(path string) (interface{}, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	src, err := ioutil.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	wrapper, err := vm.RunScript(abs, moduleHead+string(src)+moduleTail)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, errors.Errorf("%s: module wrapper is not a function", path)
	}

	exports := vm.NewObject()
	module := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, errors.Wrap(err, path)
	}

	_, err = fn(goja.Undefined(), exports, module,
		vm.ToValue(abs), vm.ToValue(filepath.Dir(abs)))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	return module.Get("exports").Export(), nil
}
