package container

import (
	"reflect"
)

// GetMethod resolves classID with Make and calls method on the result,
// resolving the method's parameters the way constructor parameters are
// resolved. Builtin parameters are not resolved and receive zero values.
//
// A trailing error result is returned as the error; otherwise the first
// result (or nil) is returned. Unlike Get, a missing class or method is an
// error, and so is a class that failed to build (*ResolutionError).
//
//	out, err := c.GetMethod(container.NameOf[ReportJob](), "Run")
func (c *Container) GetMethod(classID, method string) (any, error) {
	object, err := c.Make(classID)
	if err != nil {
		return nil, err
	}
	if object == nil {
		return nil, &AbsentTypeError{ID: classID}
	}

	m := reflect.ValueOf(object).MethodByName(method)
	if !m.IsValid() {
		return nil, &MethodNotFoundError{Type: classID, Method: method}
	}

	mt := m.Type()
	params := make([]param, mt.NumIn())
	for i := range params {
		params[i] = param{typ: mt.In(i)}
	}

	args, err := c.dependencies(params)
	if err != nil {
		return nil, &ResolutionError{ID: classID + "." + method, Err: err}
	}
	return results(call(m, args, mt.IsVariadic()))
}

func results(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}

	last := out[len(out)-1]
	if last.Type() != errorType {
		return interfaceOf(out[0]), nil
	}

	var err error
	if !last.IsNil() {
		err = last.Interface().(error)
	}
	if len(out) == 1 {
		return nil, err
	}
	return interfaceOf(out[0]), err
}
