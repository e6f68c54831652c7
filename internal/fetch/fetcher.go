package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/yasumu-org/tanxium/internal/module"
	"github.com/yasumu-org/tanxium/internal/version"
)

// Fetcher 按分类读取模块字节，可被多个加载协程并发使用。
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New 构造 Fetcher；client 为空时使用 NewClient(DefaultTimeout)。
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = NewClient(DefaultTimeout)
	}
	return &Fetcher{
		client:    client,
		userAgent: version.UserAgent(),
	}
}

// Fetch 读取分类对应的内容。LocalFile 走文件系统；Remote/PackageAlias 发起一次 GET。
func (f *Fetcher) Fetch(ctx context.Context, category module.Category) (*module.FetchResult, error) {
	switch category.Kind {
	case module.LocalFile:
		return f.fetchLocal(category)
	case module.Remote, module.PackageAlias:
		return f.fetchRemote(ctx, category)
	default:
		return nil, module.NewError(module.KindResolution, category.Specifier.String(),
			fmt.Errorf("cannot fetch category %s", category.Kind))
	}
}

func (f *Fetcher) fetchLocal(category module.Category) (*module.FetchResult, error) {
	data, err := os.ReadFile(category.Path)
	if err != nil {
		return nil, module.NewError(module.KindIO, category.Specifier.String(), err)
	}
	return &module.FetchResult{Data: data, Provenance: module.FromFilesystem}, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, category module.Category) (*module.FetchResult, error) {
	target := category.Specifier.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, module.NewError(module.KindNetwork, target, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/javascript, application/typescript, text/javascript, application/json, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, module.NewError(module.KindNetwork, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, module.StatusError(target, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, module.NewError(module.KindNetwork, target, err)
	}

	return &module.FetchResult{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Provenance:  module.FromNetwork,
	}, nil
}
