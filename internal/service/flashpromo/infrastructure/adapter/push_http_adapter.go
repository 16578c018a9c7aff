// internal/service/flashpromo/infrastructure/adapter/push_http_adapter.go
package adapter

import (
	"context"
	"net/url"

	"flashmart/internal/pkg/httpclient"
	"flashmart/internal/service/flashpromo/domain"
)

// PushHTTPAdapter 是 port.NotificationChannel 的 App 推送实现。
// 它调用推送网关的 /push 接口，由网关通过 WebSocket 下发到在线设备。
// 用户不在线时网关返回非 200，该用户落到下一个渠道。
type PushHTTPAdapter struct {
	client     *httpclient.Client
	gatewayURL string
}

// NewPushHTTPAdapter 创建推送渠道适配器。
func NewPushHTTPAdapter(client *httpclient.Client, gatewayURL string) *PushHTTPAdapter {
	return &PushHTTPAdapter{client: client, gatewayURL: gatewayURL}
}

// Name 返回渠道名。
func (a *PushHTTPAdapter) Name() string { return "push" }

// Send 把通知投递到推送网关。
func (a *PushHTTPAdapter) Send(ctx context.Context, user *domain.User, message string, promo *domain.Promo) (bool, error) {
	params := url.Values{}
	params.Set("user_id", user.ID.String())
	params.Set("promo_id", promo.ID.String())
	params.Set("message", message)

	if err := a.client.Post(ctx, a.gatewayURL+"/push", params); err != nil {
		// 网关不可达或用户离线都视为该渠道投递失败，交给下一个渠道。
		return false, err
	}
	return true, nil
}
