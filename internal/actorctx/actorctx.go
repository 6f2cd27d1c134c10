// Package actorctx 在上下文中传递已解析的调用者身份。
//
// 租户与角色解析本身由外部鉴权层完成（不在本模块范围内）；这里只负责
// 把解析结果沿调用链传递下去，供仓储层做租户隔离、服务层做权限判断。
package actorctx

import (
	"context"
	"errors"

	"github.com/rotaforge/rotaforge/pkg/model"
)

// ErrNoActor 表示上下文中缺少调用者身份
var ErrNoActor = errors.New("上下文中缺少调用者身份")

// Actor 已解析的调用者身份
type Actor struct {
	TenantID model.TenantID
	UserID   string
	Role     model.Role
}

// CanApprove 调用者是否具备 manager/owner 权限
func (a Actor) CanApprove() bool {
	return a.Role.CanApprove()
}

type actorContextKey struct{}

// WithActor 将调用者身份写入上下文
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// FromContext 从上下文读取调用者身份
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

// MustFromContext 读取调用者身份，缺失时返回 ErrNoActor
func MustFromContext(ctx context.Context) (Actor, error) {
	actor, ok := FromContext(ctx)
	if !ok {
		return Actor{}, ErrNoActor
	}
	return actor, nil
}

// TenantOf 便捷方法：取出上下文中的租户 ID，缺失时返回空字符串
func TenantOf(ctx context.Context) model.TenantID {
	actor, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return actor.TenantID
}
