package controller

import (
	"context"
	"time"

	"adaptive_tutor/internal/ml"
	"adaptive_tutor/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *ml.Registry
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, registry *ml.Registry) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Registry: registry}
}

// @Summary 健康检查
// @Description 检查数据库、Redis 和分类器模型状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}

	if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
		util.ServiceUnavailable(ctx, "Database unavailable")
		return
	}

	components := gin.H{"database": "up"}

	if c.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		defer cancel()
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			util.ServiceUnavailable(ctx, "Redis unavailable")
			return
		}
		components["redis"] = "up"
	}

	// 模型缺失不影响服务，掌握度退回基线估计
	model := gin.H{"status": "baseline-only"}
	if c.Registry != nil {
		if a := c.Registry.Current(); a != nil {
			model = gin.H{"status": "loaded", "version": a.Version}
		}
	}
	components["classifier"] = model

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
