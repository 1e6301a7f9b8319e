// Package mining 矿机包目录与生命周期服务
package mining

import (
	"context"

	"gorm.io/gorm"

	apperrors "github.com/jojomine/mining-platform-backend/internal/common/errors"
	"github.com/jojomine/mining-platform-backend/internal/models"
	"github.com/jojomine/mining-platform-backend/internal/repository"
)

// PackageService 矿机包目录服务（管理端维护，用户端浏览）
type PackageService struct {
	packageRepo *repository.PackageRepository
}

// NewPackageService 创建矿机包目录服务
func NewPackageService(packageRepo *repository.PackageRepository) *PackageService {
	return &PackageService{packageRepo: packageRepo}
}

// CreateRequest 创建矿机包请求
type CreateRequest struct {
	Name            string  `json:"name" binding:"required"`
	Price           float64 `json:"price" binding:"required,gt=0"`
	Mode            string  `json:"mode" binding:"required,oneof=daily monthly"`
	DailyPercentage float64 `json:"daily_percentage"`
	TargetValue     float64 `json:"target_value"`
	MaturityPeriod  int     `json:"maturity_period" binding:"required,gt=0"`
	Sort            int     `json:"sort"`
}

// Create 创建矿机包
func (s *PackageService) Create(ctx context.Context, req *CreateRequest) (*models.MiningPackage, error) {
	if req.Mode != models.PackageModeDaily && req.Mode != models.PackageModeMonthly {
		return nil, apperrors.ErrPackageModeInvalid
	}
	pkg := &models.MiningPackage{
		Name:            req.Name,
		Price:           req.Price,
		Mode:            req.Mode,
		DailyPercentage: req.DailyPercentage,
		TargetValue:     req.TargetValue,
		MaturityPeriod:  req.MaturityPeriod,
		Status:          models.PackageStatusActive,
		Sort:            req.Sort,
	}
	if err := s.packageRepo.Create(ctx, pkg); err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return pkg, nil
}

// GetByID 获取矿机包
func (s *PackageService) GetByID(ctx context.Context, id int64) (*models.MiningPackage, error) {
	pkg, err := s.packageRepo.GetByID(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrPackageNotFound
	}
	if err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return pkg, nil
}

// ListActive 获取上架中的矿机包（用户端货架）
func (s *PackageService) ListActive(ctx context.Context) ([]*models.MiningPackage, error) {
	return s.packageRepo.GetActive(ctx)
}

// List 获取全部矿机包（管理端）
func (s *PackageService) List(ctx context.Context, offset, limit int) ([]*models.MiningPackage, int64, error) {
	return s.packageRepo.List(ctx, offset, limit)
}

// UpdateRequest 更新矿机包请求
type UpdateRequest struct {
	Name            *string  `json:"name"`
	Price           *float64 `json:"price"`
	DailyPercentage *float64 `json:"daily_percentage"`
	TargetValue     *float64 `json:"target_value"`
	MaturityPeriod  *int     `json:"maturity_period"`
	Sort            *int     `json:"sort"`
}

// Update 更新矿机包
func (s *PackageService) Update(ctx context.Context, id int64, req *UpdateRequest) (*models.MiningPackage, error) {
	pkg, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		pkg.Name = *req.Name
	}
	if req.Price != nil {
		pkg.Price = *req.Price
	}
	if req.DailyPercentage != nil {
		pkg.DailyPercentage = *req.DailyPercentage
	}
	if req.TargetValue != nil {
		pkg.TargetValue = *req.TargetValue
	}
	if req.MaturityPeriod != nil {
		pkg.MaturityPeriod = *req.MaturityPeriod
	}
	if req.Sort != nil {
		pkg.Sort = *req.Sort
	}
	if err := s.packageRepo.Update(ctx, pkg); err != nil {
		return nil, apperrors.ErrDatabaseError.WithError(err)
	}
	return pkg, nil
}

// UpdateStatus 上架/下架
func (s *PackageService) UpdateStatus(ctx context.Context, id int64, status int8) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.packageRepo.UpdateStatus(ctx, id, status)
}

// Delete 删除矿机包，已有购买记录时拒绝
func (s *PackageService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.packageRepo.Delete(ctx, id)
}
