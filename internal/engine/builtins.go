package engine

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid/v2"

	"github.com/yasumu-org/tanxium/internal/version"
)

// maxRandomBytes 限制 crypto.randomBytes 单次申请的长度。
const maxRandomBytes = 1 << 16

var timerGlobals = []string{"setTimeout", "clearTimeout", "setInterval", "clearInterval", "setImmediate", "clearImmediate"}

func (e *Engine) installBuiltins() error {
	vm := e.vm
	if !e.builtins.Timers {
		global := vm.GlobalObject()
		for _, name := range timerGlobals {
			if err := global.Delete(name); err != nil {
				return err
			}
		}
	}
	if e.builtins.Crypto {
		if err := vm.Set("crypto", e.cryptoObject()); err != nil {
			return err
		}
	}
	if e.builtins.Base64 {
		if err := e.installBase64(); err != nil {
			return err
		}
	}
	if e.builtins.Performance {
		if err := vm.Set("performance", e.performanceObject()); err != nil {
			return err
		}
	}
	if e.builtins.Runtime {
		if err := vm.Set(e.globalName, e.runtimeObject()); err != nil {
			return err
		}
	}
	if e.typeScript {
		if err := vm.Set("transpileTypeScript", e.transpileFunc); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cryptoObject() *goja.Object {
	vm := e.vm
	obj := vm.NewObject()
	_ = obj.Set("randomBytes", func(call goja.FunctionCall) goja.Value {
		size := call.Argument(0).ToInteger()
		if size < 0 || size > maxRandomBytes {
			panic(vm.NewTypeError("randomBytes size must be between 0 and %d", maxRandomBytes))
		}
		buf := make([]byte, size)
		if _, err := rand.Read(buf); err != nil {
			panic(vm.NewGoError(err))
		}
		return e.uint8Array(buf)
	})
	_ = obj.Set("randomUUID", uuid.NewString)
	_ = obj.Set("randomULID", newULID)
	_ = obj.Set("randomNanoId", e.nanoidFunc)
	return obj
}

func (e *Engine) installBase64() error {
	vm := e.vm
	obj := vm.NewObject()
	_ = obj.Set("encode", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(base64.StdEncoding.EncodeToString(e.bytesArg(call.Argument(0))))
	})
	_ = obj.Set("encodeURL", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(base64.RawURLEncoding.EncodeToString(e.bytesArg(call.Argument(0))))
	})
	_ = obj.Set("decode", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(e.decodeBase64(base64.StdEncoding, call.Argument(0).String()))
	})
	_ = obj.Set("decodeURL", func(call goja.FunctionCall) goja.Value {
		raw := strings.TrimRight(call.Argument(0).String(), "=")
		return vm.ToValue(e.decodeBase64(base64.RawURLEncoding, raw))
	})
	if err := vm.Set("Base64", obj); err != nil {
		return err
	}
	if err := vm.Set("btoa", e.btoa); err != nil {
		return err
	}
	return vm.Set("atob", e.atob)
}

func (e *Engine) decodeBase64(enc *base64.Encoding, raw string) string {
	data, err := enc.DecodeString(raw)
	if err != nil {
		panic(e.vm.NewTypeError("invalid base64 input: %s", err.Error()))
	}
	return string(data)
}

// btoa 按 Latin-1 编码输入，超出范围的字符抛出异常。
func (e *Engine) btoa(call goja.FunctionCall) goja.Value {
	input := call.Argument(0).String()
	buf := make([]byte, 0, len(input))
	for _, r := range input {
		if r > 0xff {
			panic(e.vm.NewTypeError("btoa: the string contains characters outside of the Latin1 range"))
		}
		buf = append(buf, byte(r))
	}
	return e.vm.ToValue(base64.StdEncoding.EncodeToString(buf))
}

func (e *Engine) atob(call goja.FunctionCall) goja.Value {
	input := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, call.Argument(0).String())
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(input); err != nil {
			panic(e.vm.NewTypeError("atob: the string to be decoded is not correctly encoded"))
		}
	}
	var sb strings.Builder
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return e.vm.ToValue(sb.String())
}

// bytesArg 接受字符串、ArrayBuffer 或 Uint8Array。
func (e *Engine) bytesArg(v goja.Value) []byte {
	switch data := v.Export().(type) {
	case []byte:
		return data
	case goja.ArrayBuffer:
		return data.Bytes()
	default:
		return []byte(v.String())
	}
}

func (e *Engine) uint8Array(buf []byte) goja.Value {
	obj, err := e.vm.New(e.vm.Get("Uint8Array"), e.vm.ToValue(e.vm.NewArrayBuffer(buf)))
	if err != nil {
		panic(e.vm.NewGoError(err))
	}
	return obj
}

func (e *Engine) performanceObject() *goja.Object {
	obj := e.vm.NewObject()
	_ = obj.Set("timeOrigin", float64(e.timeOrigin.UnixNano())/float64(time.Millisecond))
	_ = obj.Set("now", func() float64 {
		return float64(time.Since(e.timeOrigin)) / float64(time.Millisecond)
	})
	return obj
}

func (e *Engine) runtimeObject() *goja.Object {
	vm := e.vm
	obj := vm.NewObject()

	ver := vm.NewObject()
	_ = ver.Set("tanxium", version.Version)
	_ = obj.Set("version", ver)

	versions := vm.NewObject()
	_ = versions.Set("tanxium", version.Version)
	_ = versions.Set("commit", version.Commit)
	_ = versions.Set("go", runtime.Version())
	_ = obj.Set("versions", versions)

	features := vm.NewObject()
	_ = features.Set("typescript", e.typeScript)
	_ = obj.Set("features", features)

	_ = obj.Set("sleep", e.sleep)
	_ = obj.Set("uuid", uuid.NewString)
	_ = obj.Set("ulid", newULID)
	_ = obj.Set("nanoid", e.nanoidFunc)

	_ = obj.Set("getRuntimeData", func() goja.Value {
		if e.runtimeData == nil {
			return vm.NewObject()
		}
		return e.runtimeData
	})
	_ = obj.Set("setRuntimeData", func(call goja.FunctionCall) goja.Value {
		if err := e.setRuntimeData(call.Argument(0)); err != nil {
			panic(vm.NewTypeError(err.Error()))
		}
		return goja.Undefined()
	})
	_ = obj.Set("clearRuntimeData", func() {
		e.runtimeData = nil
	})
	_ = obj.Set("getRuntimeDataString", func() string {
		out, err := e.stringifyRuntimeData()
		if err != nil {
			e.throw(err)
		}
		return out
	})
	return obj
}

// sleep 返回在 ms 毫秒后兑现的 Promise。
func (e *Engine) sleep(call goja.FunctionCall) goja.Value {
	ms := call.Argument(0).ToInteger()
	if ms < 0 {
		ms = 0
	}
	promise, resolve, _ := e.vm.NewPromise()
	e.loop.SetTimeout(func(*goja.Runtime) {
		_ = resolve(goja.Undefined())
	}, time.Duration(ms)*time.Millisecond)
	return e.vm.ToValue(promise)
}

func (e *Engine) nanoidFunc(call goja.FunctionCall) goja.Value {
	var size []int
	if arg := call.Argument(0); !goja.IsUndefined(arg) {
		size = append(size, int(arg.ToInteger()))
	}
	id, err := gonanoid.New(size...)
	if err != nil {
		panic(e.vm.NewTypeError(err.Error()))
	}
	return e.vm.ToValue(id)
}

func newULID() string {
	return ulid.Make().String()
}

func (e *Engine) transpileFunc(call goja.FunctionCall) goja.Value {
	code, err := e.Transpile(call.Argument(0).String())
	if err != nil {
		e.throw(err)
	}
	return e.vm.ToValue(code)
}

func (e *Engine) setRuntimeData(v goja.Value) error {
	obj, ok := v.(*goja.Object)
	if !ok || goja.IsNull(v) {
		return errors.New("Invalid runtime data, expected an object")
	}
	e.runtimeData = obj
	return nil
}

func (e *Engine) stringifyRuntimeData() (string, error) {
	if e.runtimeData == nil {
		return "{}", nil
	}
	stringify, ok := goja.AssertFunction(e.vm.Get("JSON").ToObject(e.vm).Get("stringify"))
	if !ok {
		return "", errors.New("JSON.stringify is unavailable")
	}
	out, err := stringify(goja.Undefined(), e.runtimeData)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
