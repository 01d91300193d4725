// Package artifact 生成部署到函数平台的源码
//
// 启用版本把来源、资源 ID 和明文密钥写成常量, 远端不读取任何运行时密钥,
// 所以轮换或停用只能通过重新部署完成
package artifact

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"

	"subleet-admin/pkg/utils"
)

const (
	VariantEnabled  = "enabled"
	VariantDisabled = "disabled"

	// Entrypoint 函数入口文件名
	Entrypoint = "index.ts"
)

// ErrInvalidInput 渲染参数不合法
var ErrInvalidInput = errors.New("invalid artifact input")

//go:embed templates/*.ts.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{"lit": lit}).ParseFS(templateFS, "templates/*.ts.tmpl"),
)

// Source 渲染结果
type Source struct {
	Variant    string
	Entrypoint string
	Content    string
	Digest     string // sha256 前 12 位, 用于日志与运行记录
}

// lit 输出 TS 字符串字面量, JSON 转义保证任何输入都无法跳出字符串
func lit(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RenderEnabled 生成启用版本
func RenderEnabled(origin, vectorStoreID, assistantID, plaintextKey string) (*Source, error) {
	origin = utils.NormalizeOrigin(origin)
	switch {
	case !utils.IsValidOrigin(origin):
		return nil, fmt.Errorf("%w: origin %q", ErrInvalidInput, origin)
	case vectorStoreID == "":
		return nil, fmt.Errorf("%w: vector store id is empty", ErrInvalidInput)
	case assistantID == "":
		return nil, fmt.Errorf("%w: assistant id is empty", ErrInvalidInput)
	case plaintextKey == "":
		return nil, fmt.Errorf("%w: api key is empty", ErrInvalidInput)
	}

	return render("enabled.ts.tmpl", VariantEnabled, map[string]string{
		"Variant":       VariantEnabled,
		"Origin":        origin,
		"VectorStoreID": vectorStoreID,
		"AssistantID":   assistantID,
		"APIKey":        plaintextKey,
	})
}

// RenderDisabled 生成停用版本, 除预检外一律返回 403 和固定提示
func RenderDisabled(projectName string) (*Source, error) {
	return render("disabled.ts.tmpl", VariantDisabled, map[string]string{
		"Variant": VariantDisabled,
		"Message": DisabledMessage(projectName),
	})
}

// DisabledMessage 停用版本返回给调用方的提示
func DisabledMessage(projectName string) string {
	return fmt.Sprintf("Ce chatbot est actuellement désactivé. Veuillez contacter l'administrateur du projet '%s' pour plus d'informations.", projectName)
}

func render(name, variant string, data map[string]string) (*Source, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return &Source{
		Variant:    variant,
		Entrypoint: Entrypoint,
		Content:    buf.String(),
		Digest:     hex.EncodeToString(sum[:])[:12],
	}, nil
}
