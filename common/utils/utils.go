package utils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var seqNum uint32

func init() {
	rand.Seed(time.Now().UnixNano())
	seqNum = rand.Uint32()
}

// FileIsExist 判断文件或目录是否存在
func FileIsExist(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// GenLogId 生成日志id，进程内唯一
func GenLogId() string {
	return fmt.Sprintf("%d_%d", time.Now().UnixNano()/1000, GenPseudoUniqId())
}

// GenPseudoUniqId 生成伪唯一id（时间戳+自增序列）
func GenPseudoUniqId() uint64 {
	nano := time.Now().UnixNano()
	seq := atomic.AddUint32(&seqNum, 1)
	return (uint64(nano) << 20) ^ uint64(seq)
}

// GetFuncCall 获取调用栈中depth层的文件行号和函数名
func GetFuncCall(depth int) (string, string) {
	pc, file, line, ok := runtime.Caller(depth)
	if !ok {
		return "", ""
	}

	fc := runtime.FuncForPC(pc)
	if fc == nil {
		return filepath.Base(file) + ":" + strconv.Itoa(line), ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line), fc.Name()
}

// GetCurFileDir 获取调用者源文件所在目录
func GetCurFileDir() string {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return ""
	}
	return filepath.Dir(file)
}

// GetCurExecDir 获取当前可执行文件所在目录
func GetCurExecDir() string {
	file, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(file)
}

// GetCurRootDir 获取当前可执行文件上级目录
func GetCurRootDir() string {
	return filepath.Dir(GetCurExecDir())
}
