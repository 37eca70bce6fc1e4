package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/Kostikrut/bubbly-back/internal/utils"
)

// AsyncMiddleware 异步处理中间件
// 将请求的处理逻辑提交到 Worker Pool 中执行，而不是在 Gin 分配的 Goroutine 中直接执行。
// 这样可以严格控制并发处理的请求数量（上传 / 导出等重操作），防止系统过载。
// 队列满时 Submit 阻塞排队，请求不被拒绝只是变慢。
func AsyncMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 如果没有初始化 Worker Pool，直接降级为同步执行
		if utils.GlobalWorkerPool == nil {
			c.Next()
			return
		}

		done := make(chan struct{})

		// 闭包捕获 gin.Context。主 Goroutine 阻塞等待 <-done，
		// 同一时间只有一个 Goroutine 在操作 c，因此是安全的。
		task := func() {
			defer close(done)
			c.Next()
		}

		utils.GlobalWorkerPool.Submit(task)

		<-done
	}
}
