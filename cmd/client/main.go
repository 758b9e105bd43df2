package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/user/bookify/internal/client/api"
	"github.com/user/bookify/internal/client/favorites"
	"github.com/user/bookify/internal/client/session"
	"github.com/user/bookify/internal/model"
)

// Bookify 命令行客户端。启动时恢复本地会话并与服务端对账，
// 之后进入交互循环：搜索、收藏、查看收藏夹。
func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("BOOKIFY_API")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := api.New(baseURL)
	store := session.NewStore(session.DefaultPath())
	cache := favorites.NewCache(client)
	binding := favorites.NewBinding(cache)

	cache.Subscribe(func(ev favorites.Event) {
		if ev == favorites.EventLoginRequired {
			fmt.Println("请先登录（login <邮箱> <口令>）")
		}
	})

	// 恢复会话：token 可用则对账，过期则静默清理
	sess, err := store.Load()
	if err != nil {
		log.Printf("[Client] 读取本地会话失败: %v", err)
		sess = &session.Session{}
	}
	if sess.Token != "" {
		client.SetToken(sess.Token)
		if user, err := client.Me(); err == nil {
			fmt.Printf("欢迎回来，%s\n", user.Name)
			if err := cache.Reconcile(); err != nil {
				log.Printf("[Client] 收藏对账失败: %v", err)
			}
		} else if errors.Is(err, api.ErrUnauthenticated) {
			client.SetToken("")
			_ = store.Clear()
			fmt.Println("登录已过期，请重新登录")
		} else {
			log.Printf("[Client] 会话校验失败: %v", err)
		}
	}

	fmt.Println("Bookify 客户端。输入 help 查看命令。")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printHelp()
		case "signup":
			if len(args) < 3 {
				fmt.Println("用法: signup <昵称> <邮箱> <口令>")
				continue
			}
			user, err := client.Signup(args[0], args[1], args[2])
			if err != nil {
				fmt.Println("注册失败:", err)
				continue
			}
			saveSession(store, client, user)
			fmt.Printf("注册成功，%s\n", user.Name)
		case "login":
			if len(args) < 2 {
				fmt.Println("用法: login <邮箱> <口令>")
				continue
			}
			user, err := client.Login(args[0], args[1])
			if err != nil {
				fmt.Println("登录失败:", err)
				continue
			}
			saveSession(store, client, user)
			fmt.Printf("登录成功，%s\n", user.Name)
			if err := cache.Reconcile(); err != nil {
				log.Printf("[Client] 收藏对账失败: %v", err)
			}
		case "logout":
			client.SetToken("")
			cache.Clear()
			_ = store.Clear()
			fmt.Println("已退出登录")
		case "me":
			user, err := client.Me()
			if err != nil {
				fmt.Println("获取账号失败:", err)
				continue
			}
			fmt.Printf("%s <%s> 角色: %s\n", user.Name, user.Email, user.Role)
		case "search":
			if len(args) == 0 {
				fmt.Println("用法: search <关键词>")
				continue
			}
			books, err := client.SearchBooks(strings.Join(args, " "))
			if err != nil {
				fmt.Println("搜索失败:", err)
				continue
			}
			binding.SetBooks(books)
			printBooks(binding.Books())
		case "featured":
			featured, err := client.Featured()
			if err != nil {
				fmt.Println("获取精选失败:", err)
				continue
			}
			books := make([]model.Book, 0, len(featured))
			for _, fb := range featured {
				books = append(books, model.BookFromFeatured(fb))
			}
			binding.SetBooks(books)
			printBooks(binding.Books())
		case "best":
			books, err := client.Bestsellers()
			if err != nil {
				fmt.Println("获取畅销榜失败:", err)
				continue
			}
			binding.SetBooks(books)
			printBooks(binding.Books())
		case "fav":
			if len(args) == 0 {
				fmt.Println("用法: fav <序号>")
				continue
			}
			idx, err := strconv.Atoi(args[0])
			books := binding.Books()
			if err != nil || idx < 1 || idx > len(books) {
				fmt.Println("无效的序号")
				continue
			}
			book := books[idx-1]
			if err := cache.Toggle(book); err != nil {
				if !errors.Is(err, api.ErrUnauthenticated) {
					fmt.Println("操作失败:", err)
				}
				continue
			}
			if cache.IsFavorited(book.BookID) {
				fmt.Printf("已收藏《%s》\n", book.Title)
			} else {
				fmt.Printf("已取消收藏《%s》\n", book.Title)
			}
		case "list":
			favs := cache.Favorites()
			if len(favs) == 0 {
				fmt.Println("收藏夹是空的")
				continue
			}
			for i, f := range favs {
				fmt.Printf("%2d. 《%s》 %s\n", i+1, f.Title, f.Author)
			}
		case "sync":
			if err := cache.Sync(); err != nil {
				fmt.Println("同步失败:", err)
				continue
			}
			fmt.Printf("同步完成，共 %d 本\n", cache.Count())
		case "exit", "quit":
			return
		default:
			fmt.Println("未知命令，输入 help 查看用法")
		}
	}
}

func saveSession(store *session.Store, client *api.Client, user *model.User) {
	err := store.Save(&session.Session{Token: client.Token(), User: user})
	if err != nil {
		log.Printf("[Client] 保存会话失败: %v", err)
	}
}

func printBooks(books []model.Book) {
	if len(books) == 0 {
		fmt.Println("没有结果")
		return
	}
	for i, b := range books {
		mark := "  "
		if b.Favorited {
			mark = "★ "
		}
		fmt.Printf("%2d. %s《%s》 %s\n", i+1, mark, b.Title, b.Author)
	}
}

func printHelp() {
	fmt.Println(`命令:
  signup <昵称> <邮箱> <口令>   注册
  login <邮箱> <口令>           登录
  logout                        退出登录
  me                            查看当前账号
  search <关键词>               搜索图书
  best                          畅销榜
  featured                      精选推荐
  fav <序号>                    收藏/取消收藏当前列表中的书
  list                          查看收藏夹
  sync                          与服务端同步收藏
  exit                          退出`)
}
