package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/identity"
	"github.com/ayokah-next/internal/validation"
)

var ErrAddressSaveFailed = errors.New("address save failed")

// AccountClient 客户账户相关上游接口
type AccountClient interface {
	GetAddresses(ctx context.Context) ([]commerce.Address, error)
	UpdateAddress(ctx context.Context, addr commerce.Address) (*commerce.Address, error)
	GetCommunicationPreferences(ctx context.Context) (*commerce.CommunicationPreferences, error)
	SaveCommunicationPreferences(ctx context.Context, prefs commerce.CommunicationPreferences) (*commerce.SaveResponse, error)
	ListWishlists(ctx context.Context) ([]commerce.Item, error)
	SaveWishlist(ctx context.Context, req commerce.WishlistSaveRequest) error
}

// AddressInput 地址保存输入
type AddressInput struct {
	AddressID     *uint  `json:"address_id"`
	StreetAddress string `json:"street_address" validate:"required,max=255"`
	City          string `json:"city" validate:"required,max=120"`
	State         string `json:"state" validate:"required,max=120"`
	ZipCode       string `json:"zip_code" validate:"required,max=32"`
	Country       string `json:"country" validate:"omitempty,max=64"`
	Phone         string `json:"phone" validate:"required,max=32"`
	AddressLabel  string `json:"address_label" validate:"omitempty,max=64"`
}

// AccountService 客户账户：规范地址与通知偏好
type AccountService struct {
	client         AccountClient
	defaultCountry string
}

// NewAccountService 创建账户服务
func NewAccountService(client AccountClient, defaultCountry string) *AccountService {
	if strings.TrimSpace(defaultCountry) == "" {
		defaultCountry = constants.DefaultCountry
	}
	return &AccountService{client: client, defaultCountry: defaultCountry}
}

// Address 返回首个地址；没有地址时按身份资料生成默认值
func (s *AccountService) Address(ctx context.Context, id identity.Identity) (*commerce.Address, error) {
	addresses, err := s.client.GetAddresses(ctx)
	if err != nil {
		return nil, err
	}
	if len(addresses) > 0 {
		addr := addresses[0]
		return &addr, nil
	}
	return &commerce.Address{
		Country:      s.defaultCountry,
		Phone:        strings.TrimSpace(id.Phone),
		AddressLabel: "Home",
	}, nil
}

// SaveAddress 校验并保存地址
func (s *AccountService) SaveAddress(ctx context.Context, in AddressInput) (*commerce.Address, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = s.defaultCountry
	}
	label := strings.TrimSpace(in.AddressLabel)
	if label == "" {
		label = "Home"
	}
	saved, err := s.client.UpdateAddress(ctx, commerce.Address{
		AddressID:     in.AddressID,
		StreetAddress: strings.TrimSpace(in.StreetAddress),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		ZipCode:       strings.TrimSpace(in.ZipCode),
		Country:       country,
		Phone:         strings.TrimSpace(in.Phone),
		AddressLabel:  label,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAddressSaveFailed, err)
	}
	return saved, nil
}

// Preferences 读取通知偏好
func (s *AccountService) Preferences(ctx context.Context) (*commerce.CommunicationPreferences, error) {
	return s.client.GetCommunicationPreferences(ctx)
}

// SavePreferences 保存通知偏好
func (s *AccountService) SavePreferences(ctx context.Context, prefs commerce.CommunicationPreferences) (*commerce.SaveResponse, error) {
	return s.client.SaveCommunicationPreferences(ctx, prefs)
}

// ServerWishlist 服务端收藏夹
func (s *AccountService) ServerWishlist(ctx context.Context) ([]commerce.Item, error) {
	return s.client.ListWishlists(ctx)
}

// SaveServerWishlist 同步一条收藏到服务端
func (s *AccountService) SaveServerWishlist(ctx context.Context, req commerce.WishlistSaveRequest) error {
	if req.ProductID == 0 {
		return commerce.NewValidationError("Product: This field is required")
	}
	return s.client.SaveWishlist(ctx, req)
}
