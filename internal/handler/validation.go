package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 注册自定义校验规则，服务启动时调用一次
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// 评分统一为 0~5 星
	_ = v.RegisterValidation("bookrating", func(fl validator.FieldLevel) bool {
		r := fl.Field().Float()
		return r >= 0 && r <= 5
	})
}
