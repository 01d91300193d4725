package service

import (
	"errors"

	"subleet-admin/internal/core/lifecycle"
	pkgErrors "subleet-admin/pkg/responses"
)

// toAppError 把生命周期错误映射为业务错误码
//
// 顺序有意义: 一个错误可能同时命中多个分类 (如 StepError 同时包含 ErrConsistency 和上游错误),
// 取最贴近调用方处理方式的那个
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *pkgErrors.AppError
	if errors.As(err, &appErr) && !errors.Is(err, lifecycle.ErrConsistency) {
		// 仓储层已经给过业务码
		if appErr.Code != pkgErrors.CodeDatabaseError {
			return err
		}
	}

	switch {
	case errors.Is(err, lifecycle.ErrConsistency):
		return pkgErrors.Wrap(pkgErrors.CodeConsistencyError, "线上函数与记录不一致, 已登记补偿", err)
	case errors.Is(err, lifecycle.ErrConfiguration):
		return pkgErrors.Wrap(pkgErrors.CodeConfigError, "服务配置错误", err)
	case errors.Is(err, lifecycle.ErrQuotaExceeded):
		return pkgErrors.Wrap(pkgErrors.CodeQuotaExceeded, "项目数量已达上限", err)
	case errors.Is(err, lifecycle.ErrValidation):
		return pkgErrors.Wrap(pkgErrors.CodeBadRequest, "请求参数错误", err)
	case errors.Is(err, lifecycle.ErrNotFound):
		return pkgErrors.Wrap(pkgErrors.CodeNotFound, "项目或密钥不存在", err)
	case errors.Is(err, lifecycle.ErrAlreadyDisplayed):
		return pkgErrors.Wrap(pkgErrors.CodeAlreadyDisplayed, "密钥已展示过, 如需查看请轮换", err)
	case errors.Is(err, lifecycle.ErrConcurrentRotation):
		return pkgErrors.Wrap(pkgErrors.CodeConflict, "密钥正在被其他请求修改, 请稍后重试", err)
	case errors.Is(err, lifecycle.ErrIntegrity):
		return pkgErrors.Wrap(pkgErrors.CodeIntegrityError, "密钥数据校验失败", err)
	case errors.Is(err, lifecycle.ErrInvalidKey):
		return pkgErrors.Wrap(pkgErrors.CodeUnauthorized, pkgErrors.ErrInvalidAPIKey.Message, err)
	case errors.Is(err, lifecycle.ErrProjectDisabled):
		return pkgErrors.Wrap(pkgErrors.CodeForbidden, "项目已停用", err)
	case errors.Is(err, lifecycle.ErrUpstream):
		return pkgErrors.Wrap(pkgErrors.CodeUpstreamError, "上游服务调用失败", err)
	case errors.Is(err, lifecycle.ErrPersistence):
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "保存失败", err)
	}
	if appErr != nil {
		return err
	}
	return pkgErrors.Wrap(pkgErrors.CodeInternalError, "内部服务器错误", err)
}
